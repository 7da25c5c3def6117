package collab

import "sync"

// PresenceManager tracks cursors and selections per connected client, so
// one user with two tabs shows up twice.
type PresenceManager struct {
	mu        sync.RWMutex
	presences map[string]*PresencePayload // clientID -> presence
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		presences: make(map[string]*PresencePayload),
	}
}

func (pm *PresenceManager) Update(clientID string, p *PresencePayload) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.presences[clientID] = p
}

func (pm *PresenceManager) Remove(clientID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.presences, clientID)
}

// ClearSelection drops selections pointing at a shape that no longer
// exists and reports the clients whose presence changed.
func (pm *PresenceManager) ClearSelection(shapeID string) []string {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	var changed []string
	for id, p := range pm.presences {
		if p.Selection == shapeID {
			cp := *p
			cp.Selection = ""
			pm.presences[id] = &cp
			changed = append(changed, id)
		}
	}
	return changed
}

func (pm *PresenceManager) GetAll() map[string]*PresencePayload {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	result := make(map[string]*PresencePayload, len(pm.presences))
	for k, v := range pm.presences {
		cp := *v
		result[k] = &cp
	}
	return result
}

func (pm *PresenceManager) StateMessage() *Message {
	return newMessage(TypePresenceState, PresenceStatePayload{Presences: pm.GetAll()})
}
