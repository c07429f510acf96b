// Package mapper turns a survey into a cave map and writes it out.
//
// Assemble builds a Map, a renderer-independent description with the
// title, one panel per view and the compass. Render draws it with
// gonum/plot (PDF, PNG or SVG), RenderHTML writes an interactive go-echarts
// page, and WriteGeoJSON exports the boundaries and centerline as a GeoJSON
// FeatureCollection in survey coordinates.
//
// Key types: Map, Panel, Compass.
package mapper
