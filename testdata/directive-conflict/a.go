package states

//bitvariants:gen state; u8; idle, running
