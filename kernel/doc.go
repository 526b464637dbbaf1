// Package kernel evaluates element-wise binary operations inside a wazero
// sandbox.
//
// For each supported element type the host encodes a small WebAssembly
// module exporting its linear memory and one loop function per operation:
//
//	i32, i64      add sub mul
//	f32, f64      add sub mul div min max
//
// Apply copies both operand buffers into linear memory through the raw
// byte escape hatch of the erasure package, runs the loop and rebuilds an
// array from the output region. WebAssembly memory is little-endian, so the
// host must be too.
package kernel
