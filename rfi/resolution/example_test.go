package resolution_test

import (
	"fmt"

	"github.com/cwbudde/algo-rfi/rfi/core"
	"github.com/cwbudde/algo-rfi/rfi/resolution"
)

func ExampleDownsample() {
	intensity := core.NewGrid(4, 8)
	intensity.Fill(2)
	weights := core.NewGrid(4, 8)
	weights.Fill(1)

	dsI, dsW, _ := resolution.Downsample(intensity, weights, 2, 4)
	_, sumW, _ := resolution.DownsampleSum(intensity, weights, 2, 4)
	fmt.Printf("%dx%d intensity=%.1f weight=%.1f summed=%.1f\n",
		dsI.Nfreq, dsI.Nt, dsI.At(0, 0), dsW.At(0, 0), sumW.At(0, 0))

	// Output:
	// 2x4 intensity=2.0 weight=1.0 summed=4.0
}

func ExampleUpsample() {
	coarse := core.NewMask(1, 2)
	coarse.Set(0, 1, true)
	fine, _ := resolution.Upsample(coarse, 2, 4)
	fmt.Println(fine.Row(0), fine.Row(1))

	// Output:
	// [false false true true] [false false true true]
}
