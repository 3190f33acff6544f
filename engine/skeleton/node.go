package skeleton

import (
	"github.com/Carmen-Shannon/oxy-anim/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// NodeListener is notified after a node recomputes its derived transform.
type NodeListener interface {
	NodeUpdated(n *Node)
}

// Node is a transform in a hierarchy. It owns its children, caches its derived transform and
// propagates dirtiness so only changed subtrees are recomputed. Bones and tag points are built
// on top of it.
type Node struct {
	name     string
	parent   *Node
	children []*Node
	holder   any
	listener NodeListener

	position    mgl32.Vec3
	orientation mgl32.Quat
	scale       mgl32.Vec3

	inheritOrientation bool
	inheritScale       bool

	initialPosition    mgl32.Vec3
	initialOrientation mgl32.Quat
	initialScale       mgl32.Vec3

	derivedPosition    mgl32.Vec3
	derivedOrientation mgl32.Quat
	derivedScale       mgl32.Vec3

	accumWeight      float32
	transFromInitial mgl32.Vec3
	rotFromInitial   mgl32.Quat
	scaleFromInitial mgl32.Vec3

	needParentUpdate bool
	needChildUpdate  bool
	parentNotified   bool
	childrenToUpdate []*Node

	cachedTransform      mgl32.Mat4
	cachedTransformStale bool
}

// NewNode creates a root node at the origin with identity orientation and unit scale.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - *Node: the node
func NewNode(name string) *Node {
	n := &Node{}
	n.initNode(name, nil)
	return n
}

func (n *Node) initNode(name string, holder any) {
	n.name = name
	n.holder = holder
	n.orientation = mgl32.QuatIdent()
	n.scale = common.UnitScale
	n.inheritOrientation = true
	n.inheritScale = true
	n.initialOrientation = mgl32.QuatIdent()
	n.initialScale = common.UnitScale
	n.derivedOrientation = mgl32.QuatIdent()
	n.derivedScale = common.UnitScale
	n.rotFromInitial = mgl32.QuatIdent()
	n.scaleFromInitial = common.UnitScale
	n.needParentUpdate = true
	n.cachedTransformStale = true
}

// Name returns the node name.
func (n *Node) Name() string {
	return n.name
}

// Parent returns the parent node, nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the child nodes in attach order. The slice is owned by the node.
func (n *Node) Children() []*Node {
	return n.children
}

// Holder returns the bone or tag point built on this node, if any.
func (n *Node) Holder() any {
	return n.holder
}

// SetListener sets the listener notified after every derived transform update.
func (n *Node) SetListener(l NodeListener) {
	n.listener = l
}

// AttachChild attaches child below this node.
//
// Parameters:
//   - child: the node to attach
//
// Returns:
//   - error: error if child already has a parent or is an ancestor of this node
func (n *Node) AttachChild(child *Node) error {
	if child.parent != nil {
		return errors.Errorf("node %q already has parent %q", child.name, child.parent.name)
	}
	for p := n; p != nil; p = p.parent {
		if p == child {
			return errors.Errorf("attaching %q below %q would create a cycle", child.name, n.name)
		}
	}
	n.children = append(n.children, child)
	child.parent = n
	child.parentNotified = false
	child.needUpdate(false)
	return nil
}

// DetachChild detaches child from this node.
//
// Returns:
//   - bool: false if child is not a child of this node
func (n *Node) DetachChild(child *Node) bool {
	list, ok := common.RemoveValue(n.children, child)
	if !ok {
		return false
	}
	n.children = list
	n.childrenToUpdate, _ = common.RemoveValue(n.childrenToUpdate, child)
	child.parent = nil
	child.needUpdate(false)
	return true
}

// Position returns the local position.
func (n *Node) Position() mgl32.Vec3 {
	return n.position
}

// SetPosition sets the local position.
func (n *Node) SetPosition(p mgl32.Vec3) {
	n.position = p
	n.needUpdate(false)
}

// Orientation returns the local orientation.
func (n *Node) Orientation() mgl32.Quat {
	return n.orientation
}

// SetOrientation sets the local orientation. The quaternion is normalised.
func (n *Node) SetOrientation(q mgl32.Quat) {
	n.orientation = q.Normalize()
	n.needUpdate(false)
}

// Scale returns the local scale.
func (n *Node) Scale() mgl32.Vec3 {
	return n.scale
}

// SetScale sets the local scale.
func (n *Node) SetScale(s mgl32.Vec3) {
	n.scale = s
	n.needUpdate(false)
}

// SetInheritOrientation sets whether the parent orientation affects this node.
func (n *Node) SetInheritOrientation(inherit bool) {
	n.inheritOrientation = inherit
	n.needUpdate(false)
}

// SetInheritScale sets whether the parent scale affects this node.
func (n *Node) SetInheritScale(inherit bool) {
	n.inheritScale = inherit
	n.needUpdate(false)
}

// Translate moves the node by d expressed in relativeTo.
func (n *Node) Translate(d mgl32.Vec3, relativeTo common.TransformSpace) {
	switch relativeTo {
	case common.TransformSpaceLocal:
		n.position = n.position.Add(n.orientation.Rotate(d))
	case common.TransformSpaceWorld:
		if n.parent != nil {
			local := n.parent.DerivedOrientation().Inverse().Rotate(d)
			ps := n.parent.DerivedScale()
			n.position = n.position.Add(mgl32.Vec3{local[0] / ps[0], local[1] / ps[1], local[2] / ps[2]})
		} else {
			n.position = n.position.Add(d)
		}
	default:
		n.position = n.position.Add(d)
	}
	n.needUpdate(false)
}

// Rotate rotates the node by q expressed in relativeTo.
func (n *Node) Rotate(q mgl32.Quat, relativeTo common.TransformSpace) {
	q = q.Normalize()
	switch relativeTo {
	case common.TransformSpaceParent:
		n.orientation = q.Mul(n.orientation)
	case common.TransformSpaceWorld:
		derived := n.DerivedOrientation()
		n.orientation = n.orientation.Mul(derived.Inverse()).Mul(q).Mul(derived)
	default:
		n.orientation = n.orientation.Mul(q)
	}
	n.orientation = n.orientation.Normalize()
	n.needUpdate(false)
}

// ScaleBy multiplies the local scale componentwise by s.
func (n *Node) ScaleBy(s mgl32.Vec3) {
	n.scale = mgl32.Vec3{n.scale[0] * s[0], n.scale[1] * s[1], n.scale[2] * s[2]}
	n.needUpdate(false)
}

// SetInitialState records the current local transform as the initial state.
func (n *Node) SetInitialState() {
	n.initialPosition = n.position
	n.initialOrientation = n.orientation
	n.initialScale = n.scale
}

// ResetToInitialState restores the initial state and clears any weighted blend in progress.
func (n *Node) ResetToInitialState() {
	n.position = n.initialPosition
	n.orientation = n.initialOrientation
	n.scale = n.initialScale

	n.accumWeight = 0
	n.transFromInitial = mgl32.Vec3{}
	n.rotFromInitial = mgl32.QuatIdent()
	n.scaleFromInitial = common.UnitScale
	n.needUpdate(false)
}

// InitialPosition returns the initial position.
func (n *Node) InitialPosition() mgl32.Vec3 {
	return n.initialPosition
}

// InitialOrientation returns the initial orientation.
func (n *Node) InitialOrientation() mgl32.Quat {
	return n.initialOrientation
}

// InitialScale returns the initial scale.
func (n *Node) InitialScale() mgl32.Vec3 {
	return n.initialScale
}

// WeightedTransform folds an offset from the initial state into the weighted average of the
// offsets applied since the last reset. The first contribution is taken as is; later ones are
// blended in by weight / (accumulated weight + weight).
//
// Parameters:
//   - weight: the weight of this contribution
//   - translate: the translation offset from the initial position
//   - rotate: the rotation offset from the initial orientation
//   - scale: the scale factor relative to the initial scale
func (n *Node) WeightedTransform(weight float32, translate mgl32.Vec3, rotate mgl32.Quat, scale mgl32.Vec3) {
	if weight == 0 {
		return
	}
	if n.accumWeight == 0 {
		n.rotFromInitial = rotate
		n.transFromInitial = translate
		n.scaleFromInitial = scale
		n.accumWeight = weight
	} else {
		factor := weight / (n.accumWeight + weight)
		n.transFromInitial = n.transFromInitial.Add(translate.Sub(n.transFromInitial).Mul(factor))
		n.rotFromInitial = common.Slerp(n.rotFromInitial, rotate, factor, true)
		blended := scale.Sub(common.UnitScale).Mul(factor).Add(common.UnitScale)
		n.scaleFromInitial = mgl32.Vec3{
			n.scaleFromInitial[0] * blended[0],
			n.scaleFromInitial[1] * blended[1],
			n.scaleFromInitial[2] * blended[2],
		}
		n.accumWeight += weight
	}

	n.orientation = n.initialOrientation.Mul(n.rotFromInitial).Normalize()
	n.position = n.initialPosition.Add(n.transFromInitial)
	n.scale = mgl32.Vec3{
		n.initialScale[0] * n.scaleFromInitial[0],
		n.initialScale[1] * n.scaleFromInitial[1],
		n.initialScale[2] * n.scaleFromInitial[2],
	}
	n.needUpdate(false)
}

// DerivedPosition returns the world position, refreshing it from the parent chain if stale.
func (n *Node) DerivedPosition() mgl32.Vec3 {
	if n.needParentUpdate {
		n.updateFromParent()
	}
	return n.derivedPosition
}

// DerivedOrientation returns the world orientation, refreshing it from the parent chain if stale.
func (n *Node) DerivedOrientation() mgl32.Quat {
	if n.needParentUpdate {
		n.updateFromParent()
	}
	return n.derivedOrientation
}

// DerivedScale returns the world scale, refreshing it from the parent chain if stale.
func (n *Node) DerivedScale() mgl32.Vec3 {
	if n.needParentUpdate {
		n.updateFromParent()
	}
	return n.derivedScale
}

// FullTransform returns the derived transform as a matrix.
func (n *Node) FullTransform() mgl32.Mat4 {
	if n.needParentUpdate {
		n.updateFromParent()
	}
	if n.cachedTransformStale {
		n.cachedTransform = common.ComposeMatrix(n.derivedPosition, n.derivedOrientation, n.derivedScale)
		n.cachedTransformStale = false
	}
	return n.cachedTransform
}

// Update recomputes derived transforms. Subtrees that were not marked dirty are skipped unless
// updateChildren forces a visit or the parent changed.
//
// Parameters:
//   - updateChildren: visit children that requested an update
//   - parentHasChanged: the parent transform changed, so this node and all children recompute
func (n *Node) Update(updateChildren, parentHasChanged bool) {
	n.parentNotified = false

	if !updateChildren && !n.needParentUpdate && !n.needChildUpdate && !parentHasChanged {
		return
	}
	if n.needParentUpdate || parentHasChanged {
		n.updateFromParent()
	}

	if n.needChildUpdate || parentHasChanged {
		for _, c := range n.children {
			c.Update(true, true)
		}
	} else {
		for _, c := range n.childrenToUpdate {
			c.Update(true, false)
		}
	}
	n.childrenToUpdate = n.childrenToUpdate[:0]
	n.needChildUpdate = false
}

func (n *Node) updateFromParent() {
	if n.parent != nil {
		po := n.parent.DerivedOrientation()
		ps := n.parent.DerivedScale()
		pp := n.parent.DerivedPosition()

		if n.inheritOrientation {
			n.derivedOrientation = po.Mul(n.orientation).Normalize()
		} else {
			n.derivedOrientation = n.orientation
		}
		if n.inheritScale {
			n.derivedScale = mgl32.Vec3{ps[0] * n.scale[0], ps[1] * n.scale[1], ps[2] * n.scale[2]}
		} else {
			n.derivedScale = n.scale
		}
		scaled := mgl32.Vec3{ps[0] * n.position[0], ps[1] * n.position[1], ps[2] * n.position[2]}
		n.derivedPosition = po.Rotate(scaled).Add(pp)
	} else {
		n.derivedOrientation = n.orientation
		n.derivedPosition = n.position
		n.derivedScale = n.scale
	}
	n.cachedTransformStale = true
	n.needParentUpdate = false

	if n.listener != nil {
		n.listener.NodeUpdated(n)
	}
}

// needUpdate marks this node and its whole subtree dirty and asks the ancestors for a selective
// update of the path down to it.
func (n *Node) needUpdate(forceParentUpdate bool) {
	n.needParentUpdate = true
	n.needChildUpdate = true
	n.cachedTransformStale = true

	if n.parent != nil && (!n.parentNotified || forceParentUpdate) {
		n.parent.requestUpdate(n, forceParentUpdate)
		n.parentNotified = true
	}
	n.childrenToUpdate = n.childrenToUpdate[:0]
}

func (n *Node) requestUpdate(child *Node, forceParentUpdate bool) {
	if n.needChildUpdate {
		return
	}
	found := false
	for _, c := range n.childrenToUpdate {
		if c == child {
			found = true
			break
		}
	}
	if !found {
		n.childrenToUpdate = append(n.childrenToUpdate, child)
	}
	if n.parent != nil && (!n.parentNotified || forceParentUpdate) {
		n.parent.requestUpdate(n, forceParentUpdate)
		n.parentNotified = true
	}
}
