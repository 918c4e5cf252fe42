// Package projection maps 3-D surface points onto a camera-facing screen
// plane without matrices.
//
// A [Projector] intersects the view ray of each point with the plane that
// sits Indent units along -Direction from the camera, then decomposes the
// offset from the screen center onto an orthogonal (onTop, onRight) basis.
// Each coordinate is the signed length of the axis scaled by the cosine of
// the angle to that axis; a cosine of exactly zero collapses to zero.
package projection
