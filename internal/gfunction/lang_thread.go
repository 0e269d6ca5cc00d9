/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"time"

	"foxvm/internal/excnames"
)

// Load_Lang_Thread registers java/lang/Thread natives, following
// artipop-jacobin/src/gfunction/javaLangThread.go's registerNatives/
// sleep pair exactly.
func Load_Lang_Thread() {
	MethodSignatures["java/lang/Thread.registerNatives()V"] = GMeth{ParamSlots: 0, GFunction: justReturn}

	MethodSignatures["java/lang/Thread.sleep(J)V"] = GMeth{ParamSlots: 1, GFunction: threadSleep}
}

// "java/lang/Thread.sleep(J)V". Blocks the calling goroutine directly
// rather than routing through internal/safepoint's checkpoint, since a
// sleeping thread is not holding any VM lock the collector needs —
// the interpreter's invoke dispatch is expected to have already
// entered a safe region before calling into a blocking native, per
// §4.6's native-call protocol.
func threadSleep(params []interface{}) interface{} {
	sleepMillis, ok := params[0].(int64)
	if !ok {
		return getGErrBlk(excnames.IllegalArgumentException, "Thread.sleep requires a long parameter")
	}
	time.Sleep(time.Duration(sleepMillis) * time.Millisecond)
	return nil
}
