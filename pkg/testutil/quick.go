// Copyright (C) 2021  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"errors"
	"reflect"
	"testing"
	"testing/quick"
)

type QuickConfig = quick.Config

// QuickCheck is like testing/quick.Check, but also feeds fn each of the static argument lists,
// and reports a failing input with Dump so that nested values are readable.
func QuickCheck(t *testing.T, fn interface{}, cfg QuickConfig, static ...[]interface{}) {
	t.Helper()
	err := quick.Check(fn, &cfg)
	var setupErr quick.SetupError
	var checkErr *quick.CheckError
	switch {
	case err == nil:
	case errors.As(err, &setupErr):
		t.Fatalf("quick.Check: %v", err)
	case errors.As(err, &checkErr):
		t.Errorf("quick.Check: failed on iteration %d:\n%s", checkErr.Count, Dump(checkErr.In))
	default:
		t.Errorf("quick.Check: %v", err)
	}

	fnVal := reflect.ValueOf(fn)
	for i, args := range static {
		if len(args) != fnVal.Type().NumIn() {
			t.Errorf("static#%d has %d args, but the function takes %d args",
				i, len(args), fnVal.Type().NumIn())
			continue
		}
		in := make([]reflect.Value, len(args))
		for j, arg := range args {
			in[j] = reflect.ValueOf(arg)
		}
		if !fnVal.Call(in)[0].Bool() {
			t.Errorf("static#%d failed:\n%s", i, Dump(args))
		}
	}
}
