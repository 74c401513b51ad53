// Homeval - Vietnamese Residential Property Price Estimation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeval

package pipeline

import (
	"fmt"
	"math/rand"

	"github.com/tomtom215/homeval/internal/frame"
)

// Split partitions the frame into train and test by a seeded shuffle. The
// same seed and test size always produce the same partition, so artifact
// fits are reproducible run to run.
func Split(f *frame.Frame, testSize float64, seed int64) (train, test *frame.Frame, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("split: test size %v outside (0,1)", testSize)
	}
	rows := f.Rows()
	nTest := int(float64(rows) * testSize)
	if rows-nTest == 0 {
		return nil, nil, ErrEmptyTrain
	}

	perm := rand.New(rand.NewSource(seed)).Perm(rows)
	inTest := make([]bool, rows)
	for _, idx := range perm[:nTest] {
		inTest[idx] = true
	}

	trainMask := make([]bool, rows)
	for i := range trainMask {
		trainMask[i] = !inTest[i]
	}
	if train, err = f.Filter(trainMask); err != nil {
		return nil, nil, err
	}
	if test, err = f.Filter(inTest); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
