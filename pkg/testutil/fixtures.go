package testutil

import (
	"fmt"

	"crpstore/internal/crp/models"
)

// Pairs builds an ordered challenge set from alternating challenge, response
// arguments: Pairs("c1", "r1", "c2", "r2").
func Pairs(kv ...string) models.Pairs {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("testutil.Pairs: odd number of arguments (%d)", len(kv)))
	}
	pairs := make(models.Pairs, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		pairs = append(pairs, models.Pair{Challenge: kv[i], Response: kv[i+1]})
	}
	return pairs
}

// Records builds CRP records for user from alternating challenge, response arguments.
func Records(user string, kv ...string) []models.CRP {
	return Pairs(kv...).Records(user)
}
