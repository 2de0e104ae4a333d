package table

import (
	"fmt"
	"sort"
	"sync"
)

// TableManager is a name-indexed registry of memory tables. The demo
// resolves table references through it.
type TableManager struct {
	nameToTable map[string]*MemoryTable
	mutex       sync.RWMutex
}

// NewTableManager creates an empty registry.
func NewTableManager() *TableManager {
	return &TableManager{
		nameToTable: make(map[string]*MemoryTable),
	}
}

// AddTable registers t under its name, replacing any table with that name.
func (tm *TableManager) AddTable(t *MemoryTable) error {
	if t == nil {
		return fmt.Errorf("table cannot be nil")
	}
	if t.Name() == "" {
		return fmt.Errorf("table name cannot be empty")
	}

	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	tm.nameToTable[t.Name()] = t
	return nil
}

// GetTable returns the table registered under name.
func (tm *TableManager) GetTable(name string) (*MemoryTable, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	t, exists := tm.nameToTable[name]
	if !exists {
		return nil, fmt.Errorf("table '%s' not found", name)
	}
	return t, nil
}

// TableExists reports whether a table is registered under name.
func (tm *TableManager) TableExists(name string) bool {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()
	_, exists := tm.nameToTable[name]
	return exists
}

// RemoveTable unregisters the named table.
func (tm *TableManager) RemoveTable(name string) error {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if _, exists := tm.nameToTable[name]; !exists {
		return fmt.Errorf("table '%s' not found", name)
	}
	delete(tm.nameToTable, name)
	return nil
}

// Clear unregisters every table.
func (tm *TableManager) Clear() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	tm.nameToTable = make(map[string]*MemoryTable)
}

// GetAllTableNames returns the registered names in sorted order.
func (tm *TableManager) GetAllTableNames() []string {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	names := make([]string, 0, len(tm.nameToTable))
	for name := range tm.nameToTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
