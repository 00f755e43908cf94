package mapping

import (
	"strings"

	"golang.org/x/text/cases"

	"beamer/internal/scene"
)

// Surface resolution scores every mesh component in every relevant world
// against three independent signals: the meshComponentName hint, the
// surface's own name, and a short token derived from targetId (the substring
// after the last ':'). Exact mesh-name matches dominate, actor name/label
// matches rank second, substring containment ranks well below either, and
// small bonuses prefer components that already carry materials and static
// meshes over other kinds. Ties break by evaluation order: first seen wins.
const (
	scoreMeshHintExact      = 3000
	scoreMeshHintContains   = 600
	scoreActorHintExact     = 2400
	scoreActorHintContains  = 420
	scoreMeshTokenExact     = 1600
	scoreMeshTokenContains  = 300
	scoreMeshNameExact      = 1400
	scoreMeshNameContains   = 260
	scoreActorTokenExact    = 1300
	scoreActorTokenContains = 260
	scoreActorNameExact     = 1200
	scoreActorNameContains  = 220
	scoreHasMaterials       = 5
	scoreStaticMesh         = 5
	scoreBase               = 1
)

var foldCaser = cases.Fold()

func fold(s string) string {
	return foldCaser.String(s)
}

func foldEqual(a, b string) bool {
	return fold(a) == fold(b)
}

func foldContains(haystack, needle string) bool {
	return strings.Contains(fold(haystack), fold(needle))
}

// targetToken derives the short match token from a target reference: the
// substring after the last ':' (target ids may carry a "service:" scope).
func targetToken(targetID string) string {
	if idx := strings.LastIndex(targetID, ":"); idx >= 0 {
		return targetID[idx+1:]
	}
	return targetID
}

type surfaceCandidate struct {
	actor scene.Actor
	mesh  scene.MeshComponent
	score int
}

// resolveSurface rebinds a surface to the best-matching mesh component. On
// failure it records lastError and flags a retry; it never aborts the pass.
func (m *Manager) resolveSurface(s *MappingSurface) {
	worlds := m.relevantWorlds()
	if len(worlds) == 0 {
		s.lastError = "World not available"
		m.worldRetry = true
		return
	}

	hint := s.MeshComponentName
	name := s.Name
	token := targetToken(s.TargetID)

	var best surfaceCandidate
	for _, world := range worlds {
		for _, actor := range world.Actors() {
			if !actor.Valid() || actor.IsCamera() {
				continue
			}
			meshes := actor.MeshComponents()
			if len(meshes) == 0 {
				continue
			}
			for _, mesh := range meshes {
				if !mesh.Valid() {
					continue
				}
				score := scoreCandidate(actor, mesh, hint, name, token)
				if score > best.score {
					best = surfaceCandidate{actor: actor, mesh: mesh, score: score}
				}
			}
		}
	}

	if best.mesh == nil {
		s.lastError = "No mesh component found"
		m.worldRetry = true
		return
	}

	s.mesh = best.mesh
	s.lastError = ""

	if s.MeshComponentName != best.mesh.Name() {
		s.MeshComponentName = best.mesh.Name()
		m.cacheDirty = true
	}
	m.sanitizeSlots(s)
	if s.TargetID == "" {
		if label := best.actor.Label(); label != "" {
			s.TargetID = label
		} else {
			s.TargetID = best.actor.Name()
		}
		m.cacheDirty = true
	}
}

func scoreCandidate(actor scene.Actor, mesh scene.MeshComponent, hint, name, token string) int {
	score := scoreBase

	score += signalScore(mesh.Name(), hint, scoreMeshHintExact, scoreMeshHintContains)
	score += actorSignalScore(actor, hint, scoreActorHintExact, scoreActorHintContains)
	score += signalScore(mesh.Name(), name, scoreMeshNameExact, scoreMeshNameContains)
	score += actorSignalScore(actor, name, scoreActorNameExact, scoreActorNameContains)
	score += signalScore(mesh.Name(), token, scoreMeshTokenExact, scoreMeshTokenContains)
	score += actorSignalScore(actor, token, scoreActorTokenExact, scoreActorTokenContains)

	if mesh.HasAssignedMaterials() {
		score += scoreHasMaterials
	}
	if mesh.StaticMesh() {
		score += scoreStaticMesh
	}
	return score
}

func signalScore(value, signal string, exact, contains int) int {
	if signal == "" || value == "" {
		return 0
	}
	if foldEqual(value, signal) {
		return exact
	}
	if foldContains(value, signal) {
		return contains
	}
	return 0
}

// actorSignalScore sums the name and label scores: an actor matching a
// signal on both earns both contributions.
func actorSignalScore(actor scene.Actor, signal string, exact, contains int) int {
	return signalScore(actor.Name(), signal, exact, contains) +
		signalScore(actor.Label(), signal, exact, contains)
}

// sanitizeSlots validates the declared material-slot list against the
// resolved mesh, falling back to all slots when the declaration is empty or
// entirely out of range.
func (m *Manager) sanitizeSlots(s *MappingSurface) {
	count := s.mesh.MaterialSlotCount()
	if len(s.MaterialSlots) == 0 {
		s.MaterialSlots = allSlots(count)
		return
	}
	valid := make([]int, 0, len(s.MaterialSlots))
	for _, slot := range s.MaterialSlots {
		if slot >= 0 && slot < count {
			valid = append(valid, slot)
		}
	}
	if len(valid) == 0 {
		valid = allSlots(count)
	}
	if !intSetEqual(valid, s.MaterialSlots) {
		s.MaterialSlots = valid
		m.cacheDirty = true
	} else {
		s.MaterialSlots = valid
	}
}

func allSlots(count int) []int {
	out := make([]int, count)
	for i := range out {
		out[i] = i
	}
	return out
}

// rollbackSurface restores every slot's original material and drops the
// dynamic instances, guaranteeing no slot is left on a stale parameter block
// when the surface is reassigned or deleted.
func rollbackSurface(s *MappingSurface) {
	if s.mesh != nil && s.mesh.Valid() {
		for slot, original := range s.originals {
			s.mesh.SetMaterial(slot, original)
		}
	}
	s.mesh = nil
	s.originals = nil
	s.dynamics = nil
}
