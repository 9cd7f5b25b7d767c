package attendance

import "errors"

var (
	// ErrUserNotFound means no user matches the presented fingerprint.
	ErrUserNotFound = errors.New("utilisateur non trouvé")
	// ErrNoCourseScheduled means no course schedule mentions today.
	ErrNoCourseScheduled = errors.New("aucun cours programmé à cette heure")
	// ErrAlreadyRecorded means the user already checked in to this course today.
	ErrAlreadyRecorded = errors.New("présence déjà enregistrée aujourd'hui")
	// ErrFingerprintTaken means another user already owns the fingerprint id.
	ErrFingerprintTaken = errors.New("empreinte déjà associée à un utilisateur")
)
