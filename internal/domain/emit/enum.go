package emit

import "fmt"

// EnumMember is one member of a generated enumeration. An empty Name renders
// as "none"; an empty Value leaves the member implicitly numbered.
type EnumMember struct {
	Name  string
	Value string
}

// Enum emits a C enumeration named name with one member per entry, each
// prefixed with the enum name. Member names are padded so explicit values
// line up. When withCount is set, a <name>_COUNT constant follows the
// enumeration; it uses constexpr when an underlying type is given and a
// scoped anonymous enum otherwise, so the count never collides with macros.
func (b *Buffer) Enum(name, underlying string, members []EnumMember, withCount bool) {
	header := fmt.Sprintf("enum %s", name)
	if underlying != "" {
		header = fmt.Sprintf("enum %s : %s", name, underlying)
	}

	labels := make([]string, len(members))

	for i, member := range members {
		memberName := member.Name
		if memberName == "" {
			memberName = "none"
		}

		labels[i] = fmt.Sprintf("%s_%s", name, memberName)
		if member.Value == "" {
			labels[i] += ","
		}
	}

	width := maxLen(labels)

	_ = b.Scope(header, func() error {
		for i, member := range members {
			if member.Value == "" {
				b.Line(labels[i])
			} else {
				b.Line(fmt.Sprintf("%s = %s,", padRight(labels[i], width), member.Value))
			}
		}

		return nil
	})

	if !withCount {
		return
	}

	if underlying != "" {
		b.Line(fmt.Sprintf("constexpr %s %s_COUNT = %d;", underlying, name, len(members)))
	} else {
		b.Line(fmt.Sprintf("enum { %s_COUNT = %d };", name, len(members)))
	}
}
