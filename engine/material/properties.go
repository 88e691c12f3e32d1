package material

import "sync"

// propertyTable maps shader property names to ids shared by every material,
// property block, command buffer and global.
type propertyTable struct {
	mutex  sync.RWMutex
	lookup map[string]int32
	names  []string
}

var properties = &propertyTable{
	lookup: make(map[string]int32),
	names:  []string{""},
}

/**
 * @brief Returns the id of a shader property name, registering it on first
 * use. Ids are stable for the lifetime of the process and never zero.
 */
func PropertyToID(name string) int32 {
	properties.mutex.RLock()
	id, ok := properties.lookup[name]
	properties.mutex.RUnlock()
	if ok {
		return id
	}

	properties.mutex.Lock()
	defer properties.mutex.Unlock()
	// Another goroutine may have registered it between the locks.
	if id, ok := properties.lookup[name]; ok {
		return id
	}
	id = int32(len(properties.names))
	properties.names = append(properties.names, name)
	properties.lookup[name] = id
	return id
}

// PropertyName is the reverse of PropertyToID. Unknown ids return false.
func PropertyName(id int32) (string, bool) {
	properties.mutex.RLock()
	defer properties.mutex.RUnlock()
	if id <= 0 || int(id) >= len(properties.names) {
		return "", false
	}
	return properties.names[id], true
}
