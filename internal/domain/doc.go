// Package domain models USGS earthquake feed data and the derived views the
// dashboard renders from it.
//
// # Data Source
//
// Events come from the USGS Earthquake Hazards Program GeoJSON endpoints:
//
//	summary feeds  https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary/{level}_{interval}.geojson
//	event query    https://earthquake.usgs.gov/fdsnws/event/1/query?format=geojson&starttime=...&endtime=...
//
// Summary feeds are pre-aggregated and regenerated by USGS every minute.
// Levels are "significant", "4.5", "2.5", "1.0" and "all"; intervals are
// "hour", "day", "week" and "month". The FDSN query accepts arbitrary date
// bounds but caps a single response at 20000 events.
//
// # Feed Conventions
//
// Geometry is a GeoJSON Point of [longitude, latitude, depth]. Depth is in
// kilometres and is not carried into [Feature].
//
// Properties used here:
//
//	mag    float or null. Null means the network has not assigned a magnitude yet.
//	place  free text, e.g. "10 km NE of Ridgecrest, CA". May be null for some events.
//	time   epoch milliseconds (UTC).
//	url    event page on earthquake.usgs.gov.
//	title  "M 2.1 - 10 km NE of Ridgecrest, CA".
//
// All other properties are ignored.
//
// # Missing Magnitudes
//
// A feature with a null magnitude is counted in totals but excluded from max,
// average and top-N. For histogram bucketing and threshold filtering it is
// treated as magnitude 0, so it lands in the lowest bucket and is only shown
// when the filter threshold is 0. See [EffectiveMagnitude].
//
// # Magnitude Buckets
//
//	[-inf, 1)  "0–1"
//	[1, 2)     "1–2"
//	[2, 3)     "2–3"
//	[3, 5)     "3–5"
//	[5, +inf)  "5+"
//
// Bucket order is fixed so chart colors stay stable between refreshes.
package domain
