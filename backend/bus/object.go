package bus

import "github.com/godbus/dbus/v5"

// Caller is the request/response half of the session bus.
type Caller interface {
	Call(dest string, path dbus.ObjectPath, method string, args ...any) error
	GetProperty(dest string, path dbus.ObjectPath, iface, prop string) (dbus.Variant, error)
	NameOwner(name string) (string, error)
}

// Object binds one interface of a remote object so its methods can be called by member name.
type Object struct {
	caller    Caller
	Dest      string
	Path      dbus.ObjectPath
	Interface string
}

func NewObject(c Caller, dest string, path dbus.ObjectPath, iface string) *Object {
	return &Object{caller: c, Dest: dest, Path: path, Interface: iface}
}

// Call invokes Interface.method on the object.
func (o *Object) Call(method string, args ...any) error {
	return o.caller.Call(o.Dest, o.Path, o.Interface+"."+method, args...)
}

// PropertiesObject reads properties of any interface on a remote object.
type PropertiesObject struct {
	caller Caller
	Dest   string
	Path   dbus.ObjectPath
}

func NewPropertiesObject(c Caller, dest string, path dbus.ObjectPath) *PropertiesObject {
	return &PropertiesObject{caller: c, Dest: dest, Path: path}
}

func (p *PropertiesObject) Get(iface, prop string) (dbus.Variant, error) {
	return p.caller.GetProperty(p.Dest, p.Path, iface, prop)
}
