/*
 * This file is part of Go Schedbench.
 *
 * Go Schedbench is free software: you can redistribute it and/or modify it under
 * the terms of the GNU General Public License as published by the Free Software Foundation,
 * either version 2 of the License, or (at your option) any later version.
 * Go Schedbench is distributed in the hope that it will be useful, but WITHOUT ANY
 * WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A
 * PARTICULAR PURPOSE. See the GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with Go Schedbench. If not, see <https://www.gnu.org/licenses/>.
 */

// Implements an empirical distribution of completion times.

package distribution

import (
	"fmt"
	"math"

	"github.com/influxdata/tdigest"
)

type CompletionTimeDistribution struct {
	empiricalDistribution *tdigest.TDigest
	numberOfSamples       int64
	minimum               float64
	maximum               float64
}

func NewCompletionTimeDistribution() *CompletionTimeDistribution {
	return NewCompletionTimeDistributionWithCompression(50)
}

func NewCompletionTimeDistributionWithCompression(compression float64) *CompletionTimeDistribution {
	return &CompletionTimeDistribution{
		empiricalDistribution: tdigest.NewWithCompression(compression),
		minimum:               math.Inf(1),
		maximum:               math.Inf(-1),
	}
}

func (d *CompletionTimeDistribution) AddSample(sample float64) error {
	if math.IsNaN(sample) || math.IsInf(sample, 0) {
		return fmt.Errorf("sample is not a finite number")
	}
	if sample < 0.0 {
		// A completion time cannot be negative.
		return fmt.Errorf("sample is negative")
	}
	d.numberOfSamples++
	d.minimum = math.Min(d.minimum, sample)
	d.maximum = math.Max(d.maximum, sample)
	d.empiricalDistribution.Add(sample, 1)
	return nil
}

func (d *CompletionTimeDistribution) GetPercentile(percentile float64) float64 {
	if d.numberOfSamples == 0 {
		return math.NaN()
	}
	return d.empiricalDistribution.Quantile(percentile / 100)
}

func (d *CompletionTimeDistribution) GetMinimum() float64 {
	if d.numberOfSamples == 0 {
		return math.NaN()
	}
	return d.minimum
}

func (d *CompletionTimeDistribution) GetMaximum() float64 {
	if d.numberOfSamples == 0 {
		return math.NaN()
	}
	return d.maximum
}

func (d *CompletionTimeDistribution) GetMedian() float64 {
	return d.GetPercentile(50.0)
}
