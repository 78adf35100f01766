package features

//bitvariants:gen pub Feature; u32; Search, Export
