//go:build race

package edu

import "golang.org/x/crypto/bcrypt"

func passwordHashCost() int {
	// race builds hash an order of magnitude slower
	return bcrypt.DefaultCost
}
