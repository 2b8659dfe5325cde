package deform

// File names used inside a trial directory.
const (
	ForceFile         = "finger_force.txt"
	PositionFile      = "finger_position.txt"
	ControlPointsFile = "fixed_control_points.npy"
)

// Config describes one experiment run.
//
// It replaces module-level paths and seeds, and is passed
// explicitly to whatever needs it.
type Config struct {
	// TrainDir and ValidDir are trial directories.
	TrainDir string
	ValidDir string

	// MirrorValid selects which trial is mirrored to
	// augment the training set.
	// If false, the training trial is mirrored.
	// If true, the validation trial is mirrored, as the
	// sponge experiments sometimes did.
	// Mirrored data never enters the validation set.
	MirrorValid bool

	// ModelFile is where the model is saved and loaded.
	ModelFile string

	// Seed is used once, at process entry.
	Seed int64
}

// DefaultConfig returns the configuration used for the
// sponge experiments.
func DefaultConfig() *Config {
	return &Config{
		TrainDir:  "data/sponge_centre",
		ValidDir:  "data/sponge_longside",
		ModelFile: "saved_models/tracker_model",
		Seed:      42,
	}
}
