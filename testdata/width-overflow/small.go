package small

//bitvariants:gen pub Day; byte; Mon, Tue, Wed, Thu, Fri, Sat, Sun, Holiday
//bitvariants:gen pub Bit; u8; B0, B1, B2, B3, B4, B5, B6, B7, B8
