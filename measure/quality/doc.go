// Package quality measures reconstruction fidelity.
//
// Compare scores a reconstructed sample grid against its reference
// with RMSE, PSNR and Pearson correlation. RetainedEnergy reports which
// fraction of a spectrum's power a circular mask keeps, which is the
// quantity a user is actually trading away while shrinking the mask.
package quality
