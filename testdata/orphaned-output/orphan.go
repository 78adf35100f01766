package orphan

// Flags used to be generated here; the directive was removed.
const Version = 2
