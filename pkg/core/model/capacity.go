package model

import "fmt"

// CapacityTable holds the capacity of every resource instance.
// Instances without an override fall back to Default.
type CapacityTable struct {
	Default   int
	Overrides map[ResourceInstance]int
}

// NewCapacityTable creates a table with a uniform default capacity
func NewCapacityTable(defaultCapacity int) CapacityTable {
	return CapacityTable{
		Default:   defaultCapacity,
		Overrides: make(map[ResourceInstance]int),
	}
}

// Set overrides the capacity of one resource instance
func (ct *CapacityTable) Set(instance ResourceInstance, capacity int) {
	if ct.Overrides == nil {
		ct.Overrides = make(map[ResourceInstance]int)
	}
	ct.Overrides[instance] = capacity
}

// Capacity returns the declared capacity of a resource instance
func (ct CapacityTable) Capacity(instance ResourceInstance) int {
	if capacity, ok := ct.Overrides[instance]; ok {
		return capacity
	}
	return ct.Default
}

// Validate checks that no capacity is negative
func (ct CapacityTable) Validate() error {
	if ct.Default < 0 {
		return &ValidationError{Field: "capacity", Reason: fmt.Sprintf("default capacity %d is negative", ct.Default)}
	}
	for instance, capacity := range ct.Overrides {
		if capacity < 0 {
			return &ValidationError{
				Day:    instance.Day,
				Field:  "capacity",
				Reason: fmt.Sprintf("capacity %d for %s is negative", capacity, instance.Name),
			}
		}
		if !instance.Day.IsValid() {
			return &ValidationError{Day: instance.Day, Field: "capacity", Reason: "override names an unknown day"}
		}
	}
	return nil
}
