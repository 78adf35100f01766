package io

//bitvariants:gen pub Op; u8; Read, Write

// Read is declared by hand and clashes with a generated constant.
func Read() {}
