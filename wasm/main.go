//go:build wasm

package main

import (
	"syscall/js"
)

func main() {
	// Export functions to JavaScript
	js.Global().Set("ScanforgeNewScanner", js.FuncOf(newScanner))
	js.Global().Set("ScanforgeScan", js.FuncOf(scan))
	js.Global().Set("ScanforgeScanBatch", js.FuncOf(scanBatch))
	js.Global().Set("ScanforgeCloseScanner", js.FuncOf(closeScanner))
	js.Global().Set("ScanforgeGetBuiltinRules", js.FuncOf(getBuiltinRules))

	// Keep WASM running
	<-make(chan struct{})
}
