package activity

import (
	"fmt"
	"strings"
)

// Record то, что сохраняется в ленту: вид и текст с тегом
type Record struct {
	Kind    Kind
	Message string
}

func tagFor(kind Kind) string {
	switch kind {
	case KindAnnouncement:
		return TagAnnouncement
	case KindFile:
		return TagFile
	case KindRename:
		return TagRename
	case KindVisibility:
		return TagVisibility
	}
	return ""
}

// Encode добавляет к тексту тег вида. Текст не проверяется.
func Encode(kind Kind, payload string) Record {
	return Record{Kind: kind, Message: tagFor(kind) + payload}
}

func Announcement(text string) Record {
	return Encode(KindAnnouncement, strings.TrimSpace(text))
}

func FilesUploaded(actor string, count int) Record {
	return Encode(KindFile, fmt.Sprintf("%s subió %d archivo(s).", actor, count))
}

func FileDeleted(actor string) Record {
	return Encode(KindFile, fmt.Sprintf("%s eliminó un archivo del grupo.", actor))
}

func Renamed(actor, oldName, newName string) Record {
	return Encode(KindRename, fmt.Sprintf(`%s cambió el nombre del grupo de "%s" a "%s"`, actor, oldName, newName))
}

func VisibilityChanged(actor string, public bool) Record {
	label := "privada"
	if public {
		label = "pública"
	}
	return Encode(KindVisibility, fmt.Sprintf("%s cambió la visibilidad del grupo a %s.", actor, label))
}

func Joined(name string) Record {
	return Encode(KindJoined, name+" "+joinedMarker+" al grupo.")
}

func MemberRemoved(actor, name string) Record {
	return Encode(KindSystem, fmt.Sprintf("%s eliminó a %s del grupo.", actor, name))
}

func MemberLeft(name string) Record {
	return Encode(KindSystem, name+" salió del grupo.")
}

func Created(name string) Record {
	return Encode(KindCreated, name+" creó el grupo.")
}
