package states

//bitvariants:gen phase; u8; starting, running
