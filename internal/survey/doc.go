// Package survey runs the cave map pipeline over one decoded point cloud.
//
// Run classifies the cloud, projects wall and centerline points onto each
// requested view, extracts the alpha-shape boundary per view and computes the
// survey metrics. The result is a Survey, a read-only value the mapper
// renders. Nothing here performs I/O besides diagnostic logging.
package survey
