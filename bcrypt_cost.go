//go:build !race

package edu

func passwordHashCost() int {
	return 12
}
