/*
 * FoxVM-Go runtime core
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gfunction

import (
	"fmt"
	"io"
	"os"

	"foxvm/internal/excnames"
	"foxvm/internal/object"
)

// Field names this bridge expects java/io/InputStream-family objects
// to carry, matching jacobin's FilePath/FileHandle field-name
// convention (artipop-jacobin/src/gfunction/javaIoInputStreamReader.go).
const (
	fieldFilePath   = "FilePath"
	fieldFileHandle = "FileHandle"
)

// Load_Io_InputStreamReader registers java/io/InputStreamReader
// natives, a pared-down port of jacobin's own Load_Io_InputStreamReader
// (full Charset/CharsetDecoder overloads are trapFunction stubs here,
// same as in jacobin, since this runtime has no NIO charset support).
func Load_Io_InputStreamReader() {
	MethodSignatures["java/io/InputStreamReader.<clinit>()V"] = GMeth{ParamSlots: 0, GFunction: justReturn}

	MethodSignatures["java/io/InputStreamReader.<init>(Ljava/io/InputStream;)V"] =
		GMeth{ParamSlots: 1, GFunction: inputStreamReaderInit}

	MethodSignatures["java/io/InputStreamReader.close()V"] = GMeth{ParamSlots: 0, GFunction: isrClose}

	MethodSignatures["java/io/InputStreamReader.read()I"] = GMeth{ParamSlots: 0, GFunction: isrReadOneChar}

	MethodSignatures["java/io/InputStreamReader.ready()Z"] = GMeth{ParamSlots: 0, GFunction: isrReady}

	MethodSignatures["java/io/InputStreamReader.<init>(Ljava/io/InputStream;Ljava/lang/String;)V"] =
		GMeth{ParamSlots: 2, GFunction: trapFunction}

	MethodSignatures["java/io/InputStreamReader.<init>(Ljava/io/InputStream;Ljava/nio/charset/Charset;)V"] =
		GMeth{ParamSlots: 2, GFunction: trapFunction}

	MethodSignatures["java/io/InputStreamReader.getEncoding()Ljava/lang/String;"] =
		GMeth{ParamSlots: 0, GFunction: trapFunction}
}

// "java/io/InputStreamReader.<init>(Ljava/io/InputStream;)V"
func inputStreamReaderInit(params []interface{}) interface{} {
	source, ok := params[1].(*object.Object)
	if !ok || source == nil {
		return getGErrBlk(excnames.IOException, "InputStreamReader requires a non-null InputStream")
	}

	pathField, ok := source.FieldByName(fieldFilePath)
	if !ok {
		return getGErrBlk(excnames.IOException, "InputStream object lacks a FilePath field")
	}
	handleField, ok := source.FieldByName(fieldFileHandle)
	if !ok {
		return getGErrBlk(excnames.IOException, "InputStream object lacks a FileHandle field")
	}
	osFile, ok := handleField.Fvalue.(*os.File)
	if !ok {
		return getGErrBlk(excnames.IOException, "InputStream object's FileHandle is not an open file")
	}
	if _, err := osFile.Stat(); err != nil {
		return getGErrBlk(excnames.IOException, fmt.Sprintf("os.Stat failed, reason: %s", err.Error()))
	}

	self := params[0].(*object.Object)
	if f, ok := self.FieldByName(fieldFilePath); ok {
		*f = *pathField
	}
	if f, ok := self.FieldByName(fieldFileHandle); ok {
		*f = *handleField
	}
	return nil
}

// "java/io/InputStreamReader.close()V"
func isrClose(params []interface{}) interface{} {
	osFile, ok := fileHandleOf(params[0].(*object.Object))
	if !ok {
		return getGErrBlk(excnames.IOException, "InputStreamReader object lacks a FileHandle field")
	}
	if err := osFile.Close(); err != nil {
		return getGErrBlk(excnames.IOException, fmt.Sprintf("osFile.Close() failed, reason: %s", err.Error()))
	}
	return nil
}

// "java/io/InputStreamReader.read()I"
func isrReadOneChar(params []interface{}) interface{} {
	osFile, ok := fileHandleOf(params[0].(*object.Object))
	if !ok {
		return getGErrBlk(excnames.IOException, "InputStreamReader object lacks a FileHandle field")
	}

	buffer := make([]byte, 1)
	if _, err := osFile.Read(buffer); err == io.EOF {
		return int32(-1)
	} else if err != nil {
		return getGErrBlk(excnames.IOException, fmt.Sprintf("osFile.Read failed, reason: %s", err.Error()))
	}
	return int32(buffer[0])
}

// "java/io/InputStreamReader.ready()Z"
func isrReady(params []interface{}) interface{} {
	osFile, ok := fileHandleOf(params[0].(*object.Object))
	if !ok {
		return getGErrBlk(excnames.IOException, "InputStreamReader object lacks a FileHandle field")
	}
	if _, err := osFile.Stat(); err != nil {
		return int32(0)
	}
	return int32(1)
}

func fileHandleOf(obj *object.Object) (*os.File, bool) {
	f, ok := obj.FieldByName(fieldFileHandle)
	if !ok {
		return nil, false
	}
	osFile, ok := f.Fvalue.(*os.File)
	return osFile, ok
}
