package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	MinStars = 1
	MaxStars = 5
)

// Histogram counts reviews per star value; index 0 holds 1-star reviews.
type Histogram [MaxStars]int64

func (h Histogram) Count(stars int) int64 {
	if stars < MinStars || stars > MaxStars {
		return 0
	}
	return h[stars-1]
}

func (h *Histogram) Add(stars int) {
	if stars < MinStars || stars > MaxStars {
		return
	}
	h[stars-1]++
}

func (h Histogram) Total() int64 {
	var total int64
	for _, n := range h {
		total += n
	}
	return total
}

// Mean is the weighted mean of the histogram, 0 when empty.
func (h Histogram) Mean() float64 {
	total := h.Total()
	if total == 0 {
		return 0
	}
	var sum int64
	for i, n := range h {
		sum += int64(i+1) * n
	}
	return float64(sum) / float64(total)
}

func (h Histogram) MarshalJSON() ([]byte, error) {
	m := make(map[string]int64, MaxStars)
	for i, n := range h {
		m[strconv.Itoa(i+1)] = n
	}
	return json.Marshal(m)
}

func (h *Histogram) UnmarshalJSON(data []byte) error {
	var m map[string]int64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*h = Histogram{}
	for k, n := range m {
		stars, err := strconv.Atoi(k)
		if err != nil || stars < MinStars || stars > MaxStars {
			return fmt.Errorf("invalid histogram bucket %q", k)
		}
		h[stars-1] = n
	}
	return nil
}

func (h Histogram) MarshalYAML() (interface{}, error) {
	m := make(map[int]int64, MaxStars)
	for i, n := range h {
		m[i+1] = n
	}
	return m, nil
}

func (h *Histogram) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var m map[int]int64
	if err := unmarshal(&m); err != nil {
		return err
	}
	*h = Histogram{}
	for stars, n := range m {
		if stars < MinStars || stars > MaxStars {
			return fmt.Errorf("invalid histogram bucket %d", stars)
		}
		h[stars-1] = n
	}
	return nil
}

type RatingStats struct {
	Average      float64   `json:"average" yaml:"average"`
	TotalCount   int64     `json:"total_count" yaml:"total_count"`
	Distribution Histogram `json:"distribution" yaml:"distribution"`
}
