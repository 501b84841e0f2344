package mesh

// computeTangents fills the tangent attribute from positions, UVs, and
// indices using per-triangle UV gradients averaged per vertex. The fourth
// component stores handedness for bitangent reconstruction.
func computeTangents(b *Buffer) {
	n := b.VertexCount()
	if n == 0 {
		b.Tangents = nil
		return
	}

	tan1 := make([][3]float32, n)
	tan2 := make([][3]float32, n)

	for i := 0; i+2 < len(b.Indices); i += 3 {
		i1 := b.Indices[i]
		i2 := b.Indices[i+1]
		i3 := b.Indices[i+2]

		p1 := position(b, i1)
		p2 := position(b, i2)
		p3 := position(b, i3)

		u1, v1 := b.UVs[i1*2], b.UVs[i1*2+1]
		u2, v2 := b.UVs[i2*2], b.UVs[i2*2+1]
		u3, v3 := b.UVs[i3*2], b.UVs[i3*2+1]

		x1 := [3]float32{p2[0] - p1[0], p2[1] - p1[1], p2[2] - p1[2]}
		x2 := [3]float32{p3[0] - p1[0], p3[1] - p1[1], p3[2] - p1[2]}
		s1, t1 := u2-u1, v2-v1
		s2, t2 := u3-u1, v3-v1

		denom := s1*t2 - s2*t1
		if denom > -1e-8 && denom < 1e-8 {
			continue
		}
		r := 1 / denom

		sdir := [3]float32{
			(t2*x1[0] - t1*x2[0]) * r,
			(t2*x1[1] - t1*x2[1]) * r,
			(t2*x1[2] - t1*x2[2]) * r,
		}
		tdir := [3]float32{
			(s1*x2[0] - s2*x1[0]) * r,
			(s1*x2[1] - s2*x1[1]) * r,
			(s1*x2[2] - s2*x1[2]) * r,
		}

		for _, idx := range [3]uint32{i1, i2, i3} {
			tan1[idx][0] += sdir[0]
			tan1[idx][1] += sdir[1]
			tan1[idx][2] += sdir[2]
			tan2[idx][0] += tdir[0]
			tan2[idx][1] += tdir[1]
			tan2[idx][2] += tdir[2]
		}
	}

	b.Tangents = make([]float32, n*4)
	for i := 0; i < n; i++ {
		nrm := position3(b.Normals, uint32(i))
		t := tan1[i]

		// Gram-Schmidt orthogonalize against the normal
		d := nrm[0]*t[0] + nrm[1]*t[1] + nrm[2]*t[2]
		t = [3]float32{t[0] - nrm[0]*d, t[1] - nrm[1]*d, t[2] - nrm[2]*d}
		if t[0]*t[0]+t[1]*t[1]+t[2]*t[2] < 1e-10 {
			t = perpendicular(nrm)
		}
		t = Normalize(t)

		w := float32(1)
		c := Cross(nrm, t)
		if c[0]*tan2[i][0]+c[1]*tan2[i][1]+c[2]*tan2[i][2] < 0 {
			w = -1
		}

		b.Tangents[i*4] = t[0]
		b.Tangents[i*4+1] = t[1]
		b.Tangents[i*4+2] = t[2]
		b.Tangents[i*4+3] = w
	}
}

func position(b *Buffer, idx uint32) [3]float32 {
	return position3(b.Positions, idx)
}

func position3(arr []float32, idx uint32) [3]float32 {
	return [3]float32{arr[idx*3], arr[idx*3+1], arr[idx*3+2]}
}

// perpendicular picks any unit vector orthogonal to v.
func perpendicular(v [3]float32) [3]float32 {
	ref := [3]float32{1, 0, 0}
	if v[0] > 0.9 || v[0] < -0.9 {
		ref = [3]float32{0, 1, 0}
	}
	return Normalize(Cross(v, ref))
}
