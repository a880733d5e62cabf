// Package thumbnail cuts the presenter out of a video frame.
//
// Extract decodes a frame, builds a contrast-enhanced copy (CLAHE on the
// L channel in CIE Lab) to help the segmentation model, resizes to fit the
// target box, and composites the original pixels with the model's alpha
// mask so the output keeps the frame's natural lighting. With lighting
// preservation off, the segmented image itself is used with a mild
// saturation and sharpness boost. The alpha edge is always softened with a
// small Gaussian blur and the result is encoded as PNG.
package thumbnail
