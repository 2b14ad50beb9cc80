// Package analysis looks at recorded runs in the frequency domain.
//
// A glass rocked by a periodic gesture should slosh at the gesture's
// period; [DominantPeriod] recovers it from any sampled series, such as the
// tilt angle or the particle centroid:
//
//	period := analysis.DominantPeriod(tiltZ, dt)
package analysis
