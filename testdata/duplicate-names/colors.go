package colors

//bitvariants:gen pub Color; u8; Red, Green, Red
