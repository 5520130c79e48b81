// Copyright 2025 The wasm5 Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/wasm5/wasm5/wasm/internal/readpos"
	"github.com/wasm5/wasm5/wasm/leb128"
)

// SectionID is a 1-byte code that encodes the section code of both known and custom sections.
type SectionID uint8

const (
	SectionIDCustom    SectionID = 0
	SectionIDType      SectionID = 1
	SectionIDImport    SectionID = 2
	SectionIDFunction  SectionID = 3
	SectionIDTable     SectionID = 4
	SectionIDMemory    SectionID = 5
	SectionIDGlobal    SectionID = 6
	SectionIDExport    SectionID = 7
	SectionIDStart     SectionID = 8
	SectionIDElement   SectionID = 9
	SectionIDCode      SectionID = 10
	SectionIDData      SectionID = 11
	SectionIDDataCount SectionID = 12
)

func (s SectionID) String() string {
	n, ok := map[SectionID]string{
		SectionIDCustom:    "custom",
		SectionIDType:      "type",
		SectionIDImport:    "import",
		SectionIDFunction:  "function",
		SectionIDTable:     "table",
		SectionIDMemory:    "memory",
		SectionIDGlobal:    "global",
		SectionIDExport:    "export",
		SectionIDStart:     "start",
		SectionIDElement:   "element",
		SectionIDCode:      "code",
		SectionIDData:      "data",
		SectionIDDataCount: "data count",
	}[s]
	if !ok {
		return "unknown"
	}
	return n
}

// Section is a declared section in a WASM module.
type Section struct {
	Start int64
	End   int64

	ID SectionID
	// Size of this section in bytes
	PayloadLen uint32
	// Section name, empty if id != 0
	Name  string
	Bytes []byte
}

type InvalidSectionIDError SectionID

func (e InvalidSectionIDError) Error() string {
	return fmt.Sprintf("wasm: invalid section ID %d", e)
}

type MissingSectionError SectionID

func (e MissingSectionError) Error() string {
	return fmt.Sprintf("wasm: missing section %s", SectionID(e).String())
}

// reads a valid section from r. The first return value is true if and only if
// the module has been completely read.
func (m *Module) readSection(r *readpos.ReadPos) (bool, error) {
	var err error
	var id uint32

	if id, err = leb128.ReadVarUint32(r); err != nil {
		if err == io.EOF { // no bytes were read, the reader is empty
			return true, nil
		}
		return false, err
	}
	s := Section{ID: SectionID(id)}

	if s.PayloadLen, err = leb128.ReadVarUint32(r); err != nil {
		return false, err
	}

	payloadDataLen := s.PayloadLen

	if s.ID == SectionIDCustom {
		nameLen, nameLenSize, err := leb128.ReadVarUint32Size(r)
		if err != nil {
			return false, err
		}
		payloadDataLen -= uint32(nameLenSize)
		if s.Name, err = readString(r, int(nameLen)); err != nil {
			return false, err
		}

		payloadDataLen -= uint32(len(s.Name))
	}

	logger.Debugf("reading section %s, payload length %d", s.ID, payloadDataLen)

	s.Start = r.CurPos

	sectionBytes := new(bytes.Buffer)
	sectionBytes.Grow(int(payloadDataLen))
	sectionReader := io.LimitReader(io.TeeReader(r, sectionBytes), int64(payloadDataLen))

	switch s.ID {
	case SectionIDCustom:
		if err = m.readSectionCustom(sectionReader); err == nil {
			s.End = r.CurPos
			s.Bytes = sectionBytes.Bytes()
			m.Other = append(m.Other, s)
		}
	case SectionIDType:
		if err = m.readSectionTypes(sectionReader); err == nil {
			s.End = r.CurPos
			s.Bytes = sectionBytes.Bytes()
			m.Types.Section = s
		}
	case SectionIDImport:
		if err = m.readSectionImports(sectionReader); err == nil {
			s.End = r.CurPos
			s.Bytes = sectionBytes.Bytes()
			m.Import.Section = s
		}
	case SectionIDFunction:
		if err = m.readSectionFunctions(sectionReader); err == nil {
			s.End = r.CurPos
			s.Bytes = sectionBytes.Bytes()
			m.Function.Section = s
		}
	case SectionIDTable:
		if err = m.readSectionTables(sectionReader); err == nil {
			s.End = r.CurPos
			s.Bytes = sectionBytes.Bytes()
			m.Table.Section = s
		}
	case SectionIDMemory:
		if err = m.readSectionMemories(sectionReader); err == nil {
			s.End = r.CurPos
			s.Bytes = sectionBytes.Bytes()
			m.Memory.Section = s
		}
	case SectionIDGlobal:
		if err = m.readSectionGlobals(sectionReader); err == nil {
			s.End = r.CurPos
			s.Bytes = sectionBytes.Bytes()
			m.Global.Section = s
		}
	case SectionIDExport:
		if err = m.readSectionExports(sectionReader); err == nil {
			s.End = r.CurPos
			s.Bytes = sectionBytes.Bytes()
			m.Export.Section = s
		}
	case SectionIDStart:
		if err = m.readSectionStart(sectionReader); err == nil {
			s.End = r.CurPos
			s.Bytes = sectionBytes.Bytes()
			m.Start.Section = s
		}
	case SectionIDElement:
		if err = m.readSectionElements(sectionReader); err == nil {
			s.End = r.CurPos
			s.Bytes = sectionBytes.Bytes()
			m.Elements.Section = s
		}
	case SectionIDCode:
		if err = m.readSectionCode(sectionReader); err == nil {
			s.End = r.CurPos
			s.Bytes = sectionBytes.Bytes()
			m.Code.Section = s
		}
	case SectionIDData:
		if err = m.readSectionData(sectionReader); err == nil {
			s.End = r.CurPos
			s.Bytes = sectionBytes.Bytes()
			m.Data.Section = s
		}
	case SectionIDDataCount:
		if err = m.readSectionDataCount(sectionReader); err == nil {
			s.End = r.CurPos
			s.Bytes = sectionBytes.Bytes()
			m.DataCount.Section = s
		}
	default:
		return false, InvalidSectionIDError(s.ID)
	}

	return false, err
}

func (m *Module) readSectionCustom(r io.Reader) error {
	_, err := io.Copy(io.Discard, r)
	return err
}

// SectionTypes declares all function signatures that will be used in a module.
type SectionTypes struct {
	Section
	Entries []FunctionSig
}

func (m *Module) readSectionTypes(r io.Reader) error {
	s := &SectionTypes{}
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}

	s.Entries = make([]FunctionSig, int(count))

	for i := range s.Entries {
		if s.Entries[i], err = readFunctionSig(r); err != nil {
			return err
		}
	}

	m.Types = s

	return nil
}

// SectionImports declares all imports that will be used in the module.
type SectionImports struct {
	Section
	Entries []ImportEntry
}

func (m *Module) readSectionImports(r io.Reader) error {
	s := &SectionImports{}
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}
	s.Entries = make([]ImportEntry, count)

	for i := range s.Entries {
		s.Entries[i], err = readImportEntry(r)
		if err != nil {
			return err
		}
	}

	m.Import = s
	return nil
}

func readImportEntry(r io.Reader) (ImportEntry, error) {
	i := ImportEntry{}
	var err error

	if i.ModuleName, err = readStringUint(r); err != nil {
		return i, err
	}
	if i.FieldName, err = readStringUint(r); err != nil {
		return i, err
	}
	if i.Kind, err = readExternal(r); err != nil {
		return i, err
	}

	switch i.Kind {
	case ExternalFunction:
		var t uint32
		t, err = leb128.ReadVarUint32(r)
		i.Type = FuncImport{t}
	case ExternalTable:
		var table *Table
		table, err = readTable(r)
		if table != nil {
			i.Type = TableImport{*table}
		}
	case ExternalMemory:
		var mem *Memory
		mem, err = readMemory(r)
		if mem != nil {
			i.Type = MemoryImport{*mem}
		}
	case ExternalGlobal:
		var gl *GlobalVar
		gl, err = readGlobalVar(r)
		if gl != nil {
			i.Type = GlobalVarImport{*gl}
		}
	default:
		return i, InvalidExternalError(i.Kind)
	}

	return i, err
}

// SectionFunctions declares the signature of all functions defined in the
// module (in the code section).
type SectionFunctions struct {
	Section
	// Sequence of indices into (SectionTypes).Entries
	Types []uint32
}

func (m *Module) readSectionFunctions(r io.Reader) error {
	s := &SectionFunctions{}
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}

	s.Types = make([]uint32, count)

	for i := range s.Types {
		t, err := leb128.ReadVarUint32(r)
		if err != nil {
			return err
		}
		s.Types[i] = t
	}

	m.Function = s
	return nil
}

// SectionTables describes all tables declared by a module.
type SectionTables struct {
	Section
	Entries []Table
}

func (m *Module) readSectionTables(r io.Reader) error {
	s := &SectionTables{}
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}
	s.Entries = make([]Table, count)

	for i := range s.Entries {
		t, err := readTable(r)
		if err != nil {
			return err
		}
		s.Entries[i] = *t
	}

	m.Table = s
	return nil
}

// SectionMemories describes all linear memories used by a module.
type SectionMemories struct {
	Section
	Entries []Memory
}

func (m *Module) readSectionMemories(r io.Reader) error {
	s := &SectionMemories{}
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}

	s.Entries = make([]Memory, count)

	for i := range s.Entries {
		mem, err := readMemory(r)
		if err != nil {
			return err
		}
		s.Entries[i] = *mem
	}

	m.Memory = s
	return nil
}

// SectionGlobals defines the value of all global variables declared in a module.
type SectionGlobals struct {
	Section
	Globals []GlobalEntry
}

func (m *Module) readSectionGlobals(r io.Reader) error {
	s := &SectionGlobals{}

	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}
	s.Globals = make([]GlobalEntry, count)

	logger.Debugf("%d global entries", count)
	for i := range s.Globals {
		s.Globals[i], err = readGlobalEntry(r)
		if err != nil {
			return err
		}
	}

	m.Global = s
	return nil
}

// GlobalEntry declares a global variable. Imported globals have a nil Init.
type GlobalEntry struct {
	Type *GlobalVar // Type holds information about the value type and mutability of the variable
	Init []byte     // Init is an initializer expression that computes the initial value of the variable
}

func readGlobalEntry(r io.Reader) (e GlobalEntry, err error) {
	e.Type, err = readGlobalVar(r)
	if err != nil {
		return
	}

	// init_expr is delimited by opcode "end" (0x0b)
	e.Init, err = readInitExpr(r)
	return e, err
}

// SectionExports declares the export section of a module.
type SectionExports struct {
	Section
	Entries []ExportEntry
}

// ByName returns the export with the given name, or nil.
func (s *SectionExports) ByName(name string) *ExportEntry {
	for i := range s.Entries {
		if s.Entries[i].FieldStr == name {
			return &s.Entries[i]
		}
	}
	return nil
}

func (m *Module) readSectionExports(r io.Reader) error {
	s := &SectionExports{}
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}
	s.Entries = make([]ExportEntry, count)

	for i := range s.Entries {
		if s.Entries[i], err = readExportEntry(r); err != nil {
			return err
		}
	}

	m.Export = s
	return nil
}

// ExportEntry represents an exported entry of the module.
type ExportEntry struct {
	FieldStr string
	Kind     External
	Index    uint32
}

func readExportEntry(r io.Reader) (ExportEntry, error) {
	e := ExportEntry{}
	var err error

	if e.FieldStr, err = readStringUint(r); err != nil {
		return e, err
	}

	if e.Kind, err = readExternal(r); err != nil {
		return e, err
	}

	e.Index, err = leb128.ReadVarUint32(r)

	return e, err
}

// SectionStartFunction represents the start function section.
type SectionStartFunction struct {
	Section
	Index uint32 // The index of the start function into the function index space.
}

func (m *Module) readSectionStart(r io.Reader) error {
	s := &SectionStartFunction{}
	var err error

	s.Index, err = leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}

	m.Start = s
	return nil
}

// ElemMode describes how an element segment is applied.
type ElemMode uint8

const (
	ElemModeActive ElemMode = iota
	ElemModePassive
	ElemModeDeclarative
)

// SectionElements describes the initial contents of a table's elements.
type SectionElements struct {
	Section
	Entries []ElementSegment
}

func (m *Module) readSectionElements(r io.Reader) error {
	s := &SectionElements{}
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}
	s.Entries = make([]ElementSegment, count)

	for i := range s.Entries {
		s.Entries[i], err = readElementSegment(r)
		if err != nil {
			return err
		}
	}

	m.Elements = s
	return nil
}

// ElementSegment describes a group of table elements. Active segments are
// copied into their table at instantiation; passive segments are the source
// operand of table.init; declarative segments only declare function
// references.
type ElementSegment struct {
	Mode       ElemMode
	Type       ValueType // funcref or externref
	TableIndex uint32
	Offset     []byte  // initializer expression computing the placement offset; active segments only
	Indices    []int64 // function indices; -1 encodes a null reference
}

// RefNullIndex encodes a null reference inside an element segment vector.
const RefNullIndex int64 = -1

const elemKindFuncref byte = 0x00

func readElementSegment(r io.Reader) (ElementSegment, error) {
	s := ElementSegment{Type: ValueTypeFuncref}

	flags, err := leb128.ReadVarUint32(r)
	if err != nil {
		return s, err
	}
	if flags > 7 {
		return s, fmt.Errorf("wasm: invalid element segment flags %#x", flags)
	}

	if flags&0x1 == 0 { // active
		s.Mode = ElemModeActive
		if flags&0x2 != 0 { // explicit table index
			if s.TableIndex, err = leb128.ReadVarUint32(r); err != nil {
				return s, err
			}
		}
		if s.Offset, err = readInitExpr(r); err != nil {
			return s, err
		}
	} else if flags&0x2 != 0 {
		s.Mode = ElemModeDeclarative
	} else {
		s.Mode = ElemModePassive
	}

	useExprs := flags&0x4 != 0
	if flags != 0 && flags != 4 { // a kind or reftype byte is present
		if useExprs {
			if s.Type, err = readRefType(r); err != nil {
				return s, err
			}
		} else {
			var kind [1]byte
			if _, err = io.ReadFull(r, kind[:]); err != nil {
				return s, err
			}
			if kind[0] != elemKindFuncref {
				return s, fmt.Errorf("wasm: invalid element kind %#x", kind[0])
			}
		}
	}

	numElems, err := leb128.ReadVarUint32(r)
	if err != nil {
		return s, err
	}
	s.Indices = make([]int64, numElems)

	for i := range s.Indices {
		if useExprs {
			idx, err := readRefInitExpr(r)
			if err != nil {
				return s, err
			}
			s.Indices[i] = idx
		} else {
			e, err := leb128.ReadVarUint32(r)
			if err != nil {
				return s, err
			}
			s.Indices[i] = int64(e)
		}
	}

	return s, nil
}

// SectionCode describes the body for every function declared inside a module.
type SectionCode struct {
	Section
	Bodies []FunctionBody
}

func (m *Module) readSectionCode(r io.Reader) error {
	s := &SectionCode{}

	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}
	s.Bodies = make([]FunctionBody, count)
	logger.Debugf("%d function bodies", count)

	for i := range s.Bodies {
		if s.Bodies[i], err = readFunctionBody(r); err != nil {
			return err
		}
		s.Bodies[i].Module = m
	}

	m.Code = s
	if m.Function == nil || len(m.Function.Types) == 0 {
		return MissingSectionError(SectionIDFunction)
	}
	if len(m.Function.Types) != len(s.Bodies) {
		return errors.New("wasm: the number of entries in the function and code section are unequal")
	}

	if m.Types == nil {
		return MissingSectionError(SectionIDType)
	}

	return nil
}

var ErrFunctionNoEnd = errors.New("wasm: function body does not end with 0x0b (end)")

// FunctionBody is the local declarations and raw instruction stream of a
// defined function.
type FunctionBody struct {
	Module *Module // The parent module containing this function body, for execution purposes
	Locals []LocalEntry
	Code   []byte
}

func readFunctionBody(r io.Reader) (FunctionBody, error) {
	f := FunctionBody{}

	bodySize, err := leb128.ReadVarUint32(r)
	if err != nil {
		return f, err
	}

	body := make([]byte, bodySize)

	if _, err = io.ReadFull(r, body); err != nil {
		return f, err
	}

	bytesReader := bytes.NewBuffer(body)

	localCount, err := leb128.ReadVarUint32(bytesReader)
	if err != nil {
		return f, err
	}
	f.Locals = make([]LocalEntry, localCount)

	for i := range f.Locals {
		if f.Locals[i], err = readLocalEntry(bytesReader); err != nil {
			return f, err
		}
	}

	code := bytesReader.Bytes()
	if len(code) == 0 || code[len(code)-1] != end {
		return f, ErrFunctionNoEnd
	}

	f.Code = code[:len(code)-1]

	return f, nil
}

// LocalEntry declares a run of local variables of a single type.
type LocalEntry struct {
	Count uint32    // The total number of local variables of the given Type used in the function body
	Type  ValueType // The type of value stored by the variable
}

func readLocalEntry(r io.Reader) (LocalEntry, error) {
	l := LocalEntry{}
	var err error

	l.Count, err = leb128.ReadVarUint32(r)
	if err != nil {
		return l, err
	}

	l.Type, err = readValueType(r)
	if err != nil {
		return l, err
	}

	return l, nil
}

// DataMode describes how a data segment is applied.
type DataMode uint8

const (
	DataModeActive DataMode = iota
	DataModePassive
)

// SectionData describes the initial values of a module's linear memory.
type SectionData struct {
	Section
	Entries []DataSegment
}

func (m *Module) readSectionData(r io.Reader) error {
	s := &SectionData{}
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}

	s.Entries = make([]DataSegment, count)

	for i := range s.Entries {
		if s.Entries[i], err = readDataSegment(r); err != nil {
			return err
		}
	}

	m.Data = s
	return nil
}

// DataSegment describes a group of bytes. Active segments are copied into
// linear memory at instantiation; passive segments are the source operand
// of memory.init.
type DataSegment struct {
	Mode     DataMode
	MemIndex uint32
	Offset   []byte // initializer expression computing the placement offset; active segments only
	Data     []byte
}

func readDataSegment(r io.Reader) (DataSegment, error) {
	s := DataSegment{}

	flags, err := leb128.ReadVarUint32(r)
	if err != nil {
		return s, err
	}

	switch flags {
	case 0:
		s.Mode = DataModeActive
	case 1:
		s.Mode = DataModePassive
	case 2:
		s.Mode = DataModeActive
		if s.MemIndex, err = leb128.ReadVarUint32(r); err != nil {
			return s, err
		}
	default:
		return s, fmt.Errorf("wasm: invalid data segment flags %#x", flags)
	}

	if s.Mode == DataModeActive {
		if s.Offset, err = readInitExpr(r); err != nil {
			return s, err
		}
	}

	s.Data, err = readBytesUint(r)
	return s, err
}

// SectionDataCount carries the number of data segments, declared ahead of
// the code section so that memory.init and data.drop can be validated.
type SectionDataCount struct {
	Section
	Count uint32
}

func (m *Module) readSectionDataCount(r io.Reader) error {
	s := &SectionDataCount{}
	var err error

	s.Count, err = leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}

	m.DataCount = s
	return nil
}
