package cave

// Guideline markers are painted bright yellow by the capture app. These
// cutoffs are a fixed convention, not tuning parameters.
const (
	centerlineMinRed   = 0.8
	centerlineMinGreen = 0.8
	centerlineMaxBlue  = 0.3
)

// IsCenterline reports whether c is a guideline marker colour.
func IsCenterline(c Color) bool {
	return c.R > centerlineMinRed && c.G > centerlineMinGreen && c.B < centerlineMaxBlue
}

// Classify partitions cloud into centerline and wall points.
// A cloud with no centerline points is valid and yields an empty Centerline.
func Classify(cloud PointCloud) (ClassifiedPoints, error) {
	if err := cloud.Validate(); err != nil {
		return ClassifiedPoints{}, err
	}

	var out ClassifiedPoints
	for i, p := range cloud.Points {
		if IsCenterline(cloud.Colors[i]) {
			out.Centerline = append(out.Centerline, p)
		} else {
			out.Wall = append(out.Wall, p)
		}
	}
	return out, nil
}
