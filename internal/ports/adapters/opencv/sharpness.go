package opencv

import "gocv.io/x/gocv"

// laplacianVariance scores focus as the variance of the Laplacian over the
// grayscale projection of a BGR frame. A flat frame scores exactly 0; rich
// in-focus detail scores orders of magnitude above a blurred copy. The score
// is deterministic for identical pixel data.
func laplacianVariance(bgr gocv.Mat) float64 {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(gray, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	mean, stdDev := lap.MeanStdDev()
	defer mean.Close()
	defer stdDev.Close()

	sd := stdDev.GetDoubleAt(0, 0)
	return sd * sd
}
