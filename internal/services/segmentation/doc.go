// Package segmentation calls a rembg-compatible background removal server.
package segmentation
