package engine

//bitvariants:gen mode; u64; fast, _, safe,

func defaultMode() string { return "fast" }
