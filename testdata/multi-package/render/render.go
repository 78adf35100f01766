package render

// Each package owns its generated names; Mode may repeat across packages.
//bitvariants:gen pub Mode; uint16; Wireframe, Shaded
//bitvariants:gen pub Pass; u32; Depth, Color, Bloom, Tonemap
