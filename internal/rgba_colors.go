package internal

import (
	"image/color"
)

// translucent fill colours for the plotted commands
var plotColors = []color.RGBA{
	{R: 244, G: 164, B: 96, A: 128},  // SandyBrown
	{R: 135, G: 206, B: 235, A: 128}, // SkyBlue
	{R: 60, G: 179, B: 113, A: 128},  // MediumSeaGreen
	{R: 147, G: 112, B: 219, A: 128}, // MediumPurple
	{R: 255, G: 105, B: 180, A: 128}, // HotPink
	{R: 255, G: 165, B: 0, A: 128},   // Orange
	{R: 240, G: 230, B: 140, A: 128}, // Khaki
	{R: 32, G: 178, B: 170, A: 128},  // LightSeaGreen
	{R: 221, G: 160, B: 221, A: 128}, // Plum
	{R: 100, G: 149, B: 237, A: 128}, // CornflowerBlue
	{R: 255, G: 99, B: 71, A: 128},   // Tomato
	{R: 64, G: 224, B: 208, A: 128},  // Turquoise
}

// plotColor returns the colour of the i-th command, cycling through the palette.
func plotColor(i int) color.Color {
	return plotColors[i%len(plotColors)]
}
