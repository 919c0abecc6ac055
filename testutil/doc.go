// Package testutil provides graph fixtures for tests.
//
// This package is intended for use in tests and benchmarks only. It
// builds temporary bolt-backed databases and seeds them with either the
// canonical demo graph (two people working at one company) or synthetic
// record sets of a requested size.
//
//	eng := testutil.OpenGraph(t)
//	testutil.SeedDemo(t, eng)
//	testutil.SeedEntities(t, eng, 5000)
package testutil
