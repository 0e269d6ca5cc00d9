/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"foxvm/internal/object"
)

// Load_Lang_StringBuilder registers java/lang/StringBuilder natives,
// grounded on artipop-jacobin/src/gfunction/javaLangStringBuilder.go's
// isLatin1 stub, extended with append/toString since this runtime's
// bootstrap exercises string concatenation through StringBuilder the
// way javac's own compiler-generated code does.
func Load_Lang_StringBuilder() {
	MethodSignatures["java/lang/StringBuilder.isLatin1()Z"] = GMeth{ParamSlots: 0, GFunction: isLatin1}

	MethodSignatures["java/lang/StringBuilder.<init>()V"] = GMeth{ParamSlots: 0, GFunction: sbInit}

	MethodSignatures["java/lang/StringBuilder.append(Ljava/lang/String;)Ljava/lang/StringBuilder;"] =
		GMeth{ParamSlots: 1, GFunction: sbAppendString}

	MethodSignatures["java/lang/StringBuilder.toString()Ljava/lang/String;"] = GMeth{ParamSlots: 0, GFunction: sbToString}
}

// "java/lang/StringBuilder.isLatin1()Z"
func isLatin1([]interface{}) interface{} {
	// This runtime never distinguishes Latin1/UTF16-compacted backing
	// storage; every StringBuilder reports Latin1.
	return int32(1)
}

// "java/lang/StringBuilder.<init>()V"
func sbInit(params []interface{}) interface{} {
	if f, ok := params[0].(*object.Object).FieldByName("value"); ok {
		f.Fvalue = ""
	}
	return nil
}

// "java/lang/StringBuilder.append(Ljava/lang/String;)Ljava/lang/StringBuilder;"
func sbAppendString(params []interface{}) interface{} {
	self := params[0].(*object.Object)
	f, ok := self.FieldByName("value")
	if !ok {
		return nil
	}
	cur, _ := f.Fvalue.(string)
	if arg, ok := params[1].(*object.Object); ok && arg != nil {
		if s, ok := stringValue(arg); ok {
			cur += s
		}
	}
	f.Fvalue = cur
	return self
}

// "java/lang/StringBuilder.toString()Ljava/lang/String;"
func sbToString(params []interface{}) interface{} {
	self := params[0].(*object.Object)
	s, _ := stringValue(self)
	return s
}
