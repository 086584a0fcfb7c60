// Package vsdf implements the shape and signed-distance-function primitive
// library used to rasterize tool-shaped regions into voxel grids.
//
// A [Shape] is a closed set of concrete types (Cylinder, ELH, Box); there is
// no dynamic tagging or CSG tree. Each shape's SDF is a pure function of a
// point in ℝ³: negative inside, zero on the boundary, positive outside, and
// 1-Lipschitz (|SDF(x1)-SDF(x2)| <= |x1-x2|). Downstream packages rely on the
// Lipschitz bound to conservatively cull regions of a grid (see package
// voxgrid).
package vsdf
