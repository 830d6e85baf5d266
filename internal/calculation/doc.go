// Package calculation holds the equilibrium and mass-balance math of the
// column: composition solves from plate temperatures (Antoine + van Laar,
// Newton-Raphson), linear plate temperature interpolation and the Rayleigh
// batch-distillation mass estimate.
//
// Everything here is a pure function of its inputs so that the streaming
// providers and bulk import/export paths share one implementation.
package calculation
