package metric

// Scalar SSD kernels over packed RGB rows (3 bytes per pixel).
//
// Parameters for every kernel:
//   - a, b:   pixel buffers of the same layout
//   - stride: bytes per row (width*3 for ppm.Image)
//   - width:  image width in pixels
//   - height: image height in pixels
//
// The largest per-pixel term is 3*255^2 = 195075, so int32 never overflows
// even for the 8-way unrolled accumulation (1,560,600).

// ssdNaive is the reference implementation used to validate the others.
func ssdNaive(a, b []uint8, stride, width, height int) float64 {
	var sum float64

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*stride + x*3

			dr := float64(a[i+0]) - float64(b[i+0])
			dg := float64(a[i+1]) - float64(b[i+1])
			db := float64(a[i+2]) - float64(b[i+2])

			sum += dr*dr + dg*dg + db*db
		}
	}

	return sum
}

// ssdUnrolled4 processes four pixels per iteration.
func ssdUnrolled4(a, b []uint8, stride, width, height int) float64 {
	var sum float64

	for y := 0; y < height; y++ {
		rowStart := y * stride
		x := 0
		unrollWidth := (width / 4) * 4

		for ; x < unrollWidth; x += 4 {
			i := rowStart + x*3

			dr0 := int32(a[i+0]) - int32(b[i+0])
			dg0 := int32(a[i+1]) - int32(b[i+1])
			db0 := int32(a[i+2]) - int32(b[i+2])

			dr1 := int32(a[i+3]) - int32(b[i+3])
			dg1 := int32(a[i+4]) - int32(b[i+4])
			db1 := int32(a[i+5]) - int32(b[i+5])

			dr2 := int32(a[i+6]) - int32(b[i+6])
			dg2 := int32(a[i+7]) - int32(b[i+7])
			db2 := int32(a[i+8]) - int32(b[i+8])

			dr3 := int32(a[i+9]) - int32(b[i+9])
			dg3 := int32(a[i+10]) - int32(b[i+10])
			db3 := int32(a[i+11]) - int32(b[i+11])

			sum += float64(dr0*dr0 + dg0*dg0 + db0*db0 +
				dr1*dr1 + dg1*dg1 + db1*db1 +
				dr2*dr2 + dg2*dg2 + db2*db2 +
				dr3*dr3 + dg3*dg3 + db3*db3)
		}

		for ; x < width; x++ {
			i := rowStart + x*3

			dr := int32(a[i+0]) - int32(b[i+0])
			dg := int32(a[i+1]) - int32(b[i+1])
			db := int32(a[i+2]) - int32(b[i+2])

			sum += float64(dr*dr + dg*dg + db*db)
		}
	}

	return sum
}

// ssdUnrolled8 processes eight pixels (24 bytes) per iteration.
func ssdUnrolled8(a, b []uint8, stride, width, height int) float64 {
	var sum float64

	for y := 0; y < height; y++ {
		rowStart := y * stride
		x := 0
		unrollWidth := (width / 8) * 8

		for ; x < unrollWidth; x += 8 {
			i := rowStart + x*3
			pa := a[i : i+24 : i+24]
			pb := b[i : i+24 : i+24]

			var acc int32
			for k := 0; k < 24; k += 3 {
				dr := int32(pa[k+0]) - int32(pb[k+0])
				dg := int32(pa[k+1]) - int32(pb[k+1])
				db := int32(pa[k+2]) - int32(pb[k+2])
				acc += dr*dr + dg*dg + db*db
			}
			sum += float64(acc)
		}

		for ; x < width; x++ {
			i := rowStart + x*3

			dr := int32(a[i+0]) - int32(b[i+0])
			dg := int32(a[i+1]) - int32(b[i+1])
			db := int32(a[i+2]) - int32(b[i+2])

			sum += float64(dr*dr + dg*dg + db*db)
		}
	}

	return sum
}
