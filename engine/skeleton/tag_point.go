package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Attachable is an external object that rides along with a tag point.
type Attachable interface {
	// NotifyAttachedTransform receives the world transform of the tag point after it moves.
	NotifyAttachedTransform(world mgl32.Mat4)
}

// EntityTransformer supplies the world transform of the entity a skeleton instance belongs to.
type EntityTransformer interface {
	WorldTransform() mgl32.Mat4
}

// TagPoint is a node below a bone that external objects attach to. It takes no part in
// animation evaluation; it only forwards its transform to its attachments when it moves.
type TagPoint struct {
	*Node
	handle   uint16
	instance *SkeletonInstance
	attached []Attachable

	inheritParentEntityOrientation bool
	inheritParentEntityScale       bool
}

var _ NodeListener = &TagPoint{}

func newTagPoint(instance *SkeletonInstance, handle uint16) *TagPoint {
	tp := &TagPoint{
		Node:                           &Node{},
		handle:                         handle,
		instance:                       instance,
		inheritParentEntityOrientation: true,
		inheritParentEntityScale:       true,
	}
	tp.initNode("", tp)
	tp.SetListener(tp)
	return tp
}

// Handle returns the tag point handle. Tag point handles never collide with bone handles.
func (tp *TagPoint) Handle() uint16 {
	return tp.handle
}

// ParentBone returns the bone the tag point hangs from.
func (tp *TagPoint) ParentBone() (*Bone, bool) {
	if tp.parent == nil {
		return nil, false
	}
	b, ok := tp.parent.holder.(*Bone)
	return b, ok
}

// Attach adds an object that follows the tag point.
func (tp *TagPoint) Attach(a Attachable) {
	tp.attached = append(tp.attached, a)
	a.NotifyAttachedTransform(tp.WorldTransform())
}

// Detach removes an attached object.
//
// Returns:
//   - bool: false if the object was not attached
func (tp *TagPoint) Detach(a Attachable) bool {
	for i, x := range tp.attached {
		if x == a {
			tp.attached = append(tp.attached[:i], tp.attached[i+1:]...)
			return true
		}
	}
	return false
}

// Attached returns the attached objects.
func (tp *TagPoint) Attached() []Attachable {
	return tp.attached
}

// SetInheritParentEntityOrientation sets whether the entity orientation applies to attachments.
func (tp *TagPoint) SetInheritParentEntityOrientation(inherit bool) {
	tp.inheritParentEntityOrientation = inherit
	tp.needUpdate(false)
}

// SetInheritParentEntityScale sets whether the entity scale applies to attachments.
func (tp *TagPoint) SetInheritParentEntityScale(inherit bool) {
	tp.inheritParentEntityScale = inherit
	tp.needUpdate(false)
}

// WorldTransform returns the tag point transform composed with the owning entity's transform,
// if the instance has an entity.
func (tp *TagPoint) WorldTransform() mgl32.Mat4 {
	local := tp.FullTransform()
	if tp.instance == nil || tp.instance.entity == nil {
		return local
	}
	entity := tp.instance.entity.WorldTransform()
	if !tp.inheritParentEntityOrientation || !tp.inheritParentEntityScale {
		// keep only the entity translation plus whatever parts are inherited
		t := entity.Col(3)
		basis := mgl32.Ident4()
		if tp.inheritParentEntityOrientation || tp.inheritParentEntityScale {
			basis = entity
			basis.SetCol(3, mgl32.Vec4{0, 0, 0, 1})
			if !tp.inheritParentEntityScale {
				for c := range 3 {
					col := basis.Col(c).Vec3().Normalize()
					basis.SetCol(c, col.Vec4(0))
				}
			} else {
				// scale only: strip rotation by keeping column lengths
				s := mgl32.Vec3{basis.Col(0).Vec3().Len(), basis.Col(1).Vec3().Len(), basis.Col(2).Vec3().Len()}
				basis = mgl32.Scale3D(s[0], s[1], s[2])
			}
		}
		basis.SetCol(3, t)
		entity = basis
	}
	return entity.Mul4(local)
}

// NodeUpdated forwards the new world transform to every attachment.
func (tp *TagPoint) NodeUpdated(*Node) {
	if len(tp.attached) == 0 {
		return
	}
	world := tp.WorldTransform()
	for _, a := range tp.attached {
		a.NotifyAttachedTransform(world)
	}
}
