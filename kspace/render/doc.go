// Package render turns spectra and reconstructed sample grids into
// displayable 8-bit images.
//
// Spectrum views use ln(1+|c|) to compress the dynamic range before the
// linear min/max rescale to [0, 255]; reconstructed grids use the rescale
// alone. Both emit standard image types that any host can encode as PNG
// or push to a display.
package render
