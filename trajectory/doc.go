// Package trajectory turns raw, noisy GPS fixes into a smoothed trajectory
// sampled on a uniform time grid.
//
// The preprocessing chain is:
//
//  1. RemoveOutliers drops fixes whose implied speed or jump distance from the
//     last retained fix is implausible.
//  2. Densify resamples the retained fixes onto t0 + k*interval. Holes longer
//     than MaxGap are recorded as Gap values and never bridged.
//  3. Smooth runs a constant-velocity Kalman filter followed by a
//     Rauch-Tung-Striebel backward pass, restarted after every gap.
//
// Preprocess chains the three steps for one trip.
package trajectory
