package platform

//bitvariants:gen pub Attr; u32; ReadOnly, Hidden, System, _, Directory, Archive
