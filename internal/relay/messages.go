package relay

import (
	"time"

	"github.com/google/uuid"

	"beamer/internal/mapping"
)

const (
	frameEvent           = "ws:m:event"
	frameCommand         = "ws:m:command"
	frameCommandResponse = "ws:m:command-response"
	frameCommandError    = "ws:m:command-error"
	framePing            = "ws:m:ping"

	changeSet = "SET"
	changeDel = "DEL"

	commandSetClientID      = "SetClientId"
	commandExecTargetAction = "ExecTargetAction"
)

// Entity item types on the wire, keyed by store kind.
var wireItemTypes = map[mapping.EntityKind]string{
	mapping.KindContext: "RenderContext",
	mapping.KindSurface: "MappingSurface",
	mapping.KindMapping: "Mapping",
}

// actionNames lists the remote actions registered per entity kind. These
// mirror the routes HandleAction recognizes.
var actionNames = map[mapping.EntityKind][]string{
	mapping.KindContext: {"setEnabled", "setCameraId", "setAssetId", "setResolution", "setCaptureMode"},
	mapping.KindSurface: {"setEnabled", "setTargetId", "setUvChannel", "setMaterialSlots", "setMeshComponentName"},
	mapping.KindMapping: {"setEnabled", "setOpacity", "setContextId", "setSurfaceIds", "setProjection", "setUVTransform"},
}

var emitterNames = []string{"state", "status"}

func itemTypeFor(kind mapping.EntityKind) string {
	return wireItemTypes[kind]
}

func kindFor(itemType string) (mapping.EntityKind, bool) {
	for kind, wire := range wireItemTypes {
		if wire == itemType {
			return kind, true
		}
	}
	return "", false
}

// envelope wraps one item change in the relay's event frame. Every frame
// carries a fresh transaction id and a millisecond timestamp.
func envelope(changeType, itemType string, item map[string]any) map[string]any {
	return map[string]any{
		"event": frameEvent,
		"data": map[string]any{
			"changeType": changeType,
			"itemType":   itemType,
			"item":       item,
			"tx":         uuid.NewString(),
			"createdAt":  time.Now().UnixMilli(),
		},
	}
}

func pulseFrame(emitterID string, data map[string]any) map[string]any {
	return envelope(changeSet, "Pulse", map[string]any{
		"id":        emitterID,
		"emitterId": emitterID,
		"data":      data,
	})
}

func commandResponse(ok bool, commandID, tx string) map[string]any {
	event := frameCommandResponse
	if !ok {
		event = frameCommandError
	}
	return map[string]any{
		"event": event,
		"data": map[string]any{
			"commandId": commandID,
			"tx":        tx,
		},
	}
}

// registrationFrames builds the target announcement for one entity: the
// target item itself plus one item per action and emitter. Targets are
// never deleted upstream; stale ones age out server-side.
func registrationFrames(serviceID string, kind mapping.EntityKind, id string) []map[string]any {
	targetID := mapping.TargetPath(kind, id)

	actionIDs := make([]string, 0, len(actionNames[kind]))
	actionFrames := make([]map[string]any, 0, len(actionNames[kind]))
	for _, name := range actionNames[kind] {
		actionID := targetID + ":" + name
		actionIDs = append(actionIDs, actionID)
		actionFrames = append(actionFrames, envelope(changeSet, "Action", map[string]any{
			"id":        actionID,
			"name":      name,
			"targetId":  targetID,
			"serviceId": serviceID,
			"schema":    map[string]any{"type": "object"},
			"hash":      uuid.NewString(),
		}))
	}

	emitterIDs := make([]string, 0, len(emitterNames))
	emitterFrames := make([]map[string]any, 0, len(emitterNames))
	for _, name := range emitterNames {
		emitterID := targetID + ":" + name
		emitterIDs = append(emitterIDs, emitterID)
		emitterFrames = append(emitterFrames, envelope(changeSet, "Emitter", map[string]any{
			"id":        emitterID,
			"name":      name,
			"targetId":  targetID,
			"serviceId": serviceID,
			"schema":    map[string]any{"type": "object"},
			"hash":      uuid.NewString(),
		}))
	}

	frames := make([]map[string]any, 0, len(actionFrames)+len(emitterFrames)+1)
	frames = append(frames, envelope(changeSet, "Target", map[string]any{
		"id":         targetID,
		"name":       targetID,
		"serviceId":  serviceID,
		"category":   "content-mapping",
		"actionIds":  actionIDs,
		"emitterIds": emitterIDs,
		"hash":       uuid.NewString(),
	}))
	frames = append(frames, actionFrames...)
	frames = append(frames, emitterFrames...)
	return frames
}

// announceFrames identifies this process to the relay: the machine it runs
// on and the service instance. clientId on the machine item is filled by the
// server.
func announceFrames(machineID, serviceID, clientID string) []map[string]any {
	clusterID := machineID + ":" + serviceID
	return []map[string]any{
		envelope(changeSet, "Machine", map[string]any{
			"id":        machineID,
			"name":      machineID,
			"execName":  machineID,
			"clientId":  "",
			"addresses": []any{},
			"hash":      uuid.NewString(),
		}),
		envelope(changeSet, "Instance", map[string]any{
			"id":              clusterID,
			"name":            serviceID,
			"clientId":        clientID,
			"clusterId":       clusterID,
			"serviceId":       serviceID,
			"serviceTypeCode": "beamer",
			"machineId":       machineID,
			"status":          "Available",
			"hash":            uuid.NewString(),
		}),
	}
}
