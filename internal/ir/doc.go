// Package ir provides the value types shared by every layer of fetchplan.
//
// This package contains leaf types only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Values are a sealed set: IRNull, IRString, IRInt, IRBool, IRArray, IRObject
//   - NO float types anywhere - use int64 for numbers
//   - Filter literals and scanned result cells share the same representation,
//     so a value read back from the backend compares equal to the literal that
//     selected it
package ir
