// Package cave owns the geometric core of the cave map pipeline.
//
// Responsibilities: colour classification of survey points into centerline
// and wall sets, projection onto the top (X-Z) and side (X-Y) planes,
// alpha-shape boundary extraction, and survey metrics (path length, max
// depth, bearing).
// Key types: PointCloud, ClassifiedPoints, Triangle, Edge.
//
// Dependency rule: cave never performs I/O and never imports the loader,
// pipeline or rendering packages. Callers hand it decoded points and get
// geometry back.
package cave
